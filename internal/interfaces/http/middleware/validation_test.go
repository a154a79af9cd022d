package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvikk/backend/internal/interfaces/http/dto"
)

func TestSetupValidator(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	assert.True(t, ok)
	assert.NotNil(t, v)
}

func TestHandleValidationError_SettingsRequest(t *testing.T) {
	SetupValidator()

	router := gin.New()
	router.Use(RequestID())
	router.POST("/api/settings", func(c *gin.Context) {
		var req dto.SettingsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	t.Run("invalid service and country code", func(t *testing.T) {
		body := strings.NewReader(`{"default_service":"overnight","sender_country_code":"HUN"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/settings", body)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(RequestIDHeader, "req-val")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Equal(t, "req-val", resp.Error.RequestID)

		fields := map[string]string{}
		for _, d := range resp.Error.Details {
			fields[d.Field] = d.Message
		}
		assert.Equal(t, "Must be one of: standard express economy", fields["default_service"])
		assert.Equal(t, "Must be a two-letter ISO country code", fields["sender_country_code"])
	})

	t.Run("sender city longer than the stored column", func(t *testing.T) {
		body := strings.NewReader(`{"sender_city":"` + strings.Repeat("a", 101) + `"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/settings", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "sender_city", resp.Error.Details[0].Field)
		assert.Equal(t, "Must be at most 100 characters", resp.Error.Details[0].Message)
	})

	t.Run("valid partial update", func(t *testing.T) {
		body := strings.NewReader(`{"default_service":"express","sender_country_code":"hu"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/settings", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestHandleValidationError_AdminForm(t *testing.T) {
	SetupValidator()

	router := gin.New()
	router.POST("/app", func(c *gin.Context) {
		var form dto.AdminFormRequest
		if err := c.ShouldBind(&form); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/app", strings.NewReader("_action=delete_everything"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"_action"`)
}

func TestFormatValidationErrors_NonValidationError(t *testing.T) {
	resp := FormatValidationErrors(assert.AnError, "req-1")

	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Empty(t, resp.Error.Details)
}

func TestGetValidationMessage(t *testing.T) {
	type sample struct {
		Required string `validate:"required"`
		Min      string `validate:"min=5"`
		Max      string `validate:"max=3"`
		Len      string `validate:"len=2"`
		OneOf    string `validate:"oneof=a b"`
		URL      string `validate:"url"`
		Email    string `validate:"email"`
	}

	err := validator.New().Struct(sample{
		Min:   "ab",
		Max:   "toolong",
		Len:   "HUN",
		OneOf: "c",
		URL:   "invalid",
		Email: "invalid",
	})
	require.Error(t, err)

	expected := map[string]string{
		"Required": "This field is required",
		"Min":      "Must be at least 5 characters",
		"Max":      "Must be at most 3 characters",
		"Len":      "Must be exactly 2 characters",
		"OneOf":    "Must be one of: a b",
		"URL":      "Invalid URL format",
		"Email":    "Invalid value",
	}

	var validationErrs validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)
	for _, e := range validationErrs {
		assert.Equal(t, expected[e.Field()], getValidationMessage(e), e.Field())
	}
	assert.Len(t, validationErrs, len(expected))
}

func TestCustomTags(t *testing.T) {
	v := validator.New()
	require.NoError(t, v.RegisterValidation(TagServiceType, validateServiceType))
	require.NoError(t, v.RegisterValidation(TagCountryCode, validateCountryCode))

	tests := []struct {
		value string
		tag   string
		valid bool
	}{
		{"standard", TagServiceType, true},
		{"economy", TagServiceType, true},
		{"Express", TagServiceType, false},
		{"overnight", TagServiceType, false},
		{"HU", TagCountryCode, true},
		{"sk", TagCountryCode, true},
		{"HUN", TagCountryCode, false},
		{"ZZ", TagCountryCode, false},
		{"", TagCountryCode, false},
	}
	for _, tt := range tests {
		t.Run(tt.tag+"/"+tt.value, func(t *testing.T) {
			err := v.Var(tt.value, tt.tag)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

// Package models contains the GORM persistence models and their mapping to
// domain entities. Secrets are stored already encrypted; the models never see
// plaintext credentials.
package models

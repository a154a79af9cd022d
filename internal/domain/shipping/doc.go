// Package shipping contains the Shipping bounded context.
// This context turns storefront checkouts and orders into Kvikk carrier calls.
//
// Key concepts:
//   - LineItem / Package: unit conversion from order lines to one carrier parcel
//   - RateRequest / CarrierRate / RateOffer: checkout rate quoting and mapping
//   - ServiceType: ordered table that maps shipping-line codes to carrier services
//   - ShipmentRequest: carrier payload built from a confirmed order
//   - ShipmentRecord: persisted outcome of every shipment attempt
//
// Design Pattern: Ports & Adapters
//   - Carrier, TrackingWriter and ShipmentRecordRepository are ports defined here
//   - Adapters live in the infrastructure layer
package shipping

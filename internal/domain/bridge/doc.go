// Package bridge contains the Sync Bridge bounded context.
// This context models the flow of orders from the cloud order API into the
// on-premise ERP and the reverse mirroring of catalog/customer data.
//
// Key concepts:
//   - Order: Value object representing a pending order fetched from the cloud API
//   - DocumentResult: Outcome of a single ERP document creation attempt
//   - RemoteOrderSource: Port interface for the cloud order API
//   - ErpGateway: Port interface for the on-premise ERP backend
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package bridge

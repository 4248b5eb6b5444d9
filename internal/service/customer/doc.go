// Package customer implements the customer store.
//
// The service layer owns validation and business rules for customer CRUD;
// every operation is scoped to the requesting user's rows. It depends on the
// Repository interface defined here and should never import from api/.
//
// The Postgres implementation lives in repository/postgres.
package customer

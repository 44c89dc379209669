// Package sqlerr translates PostgreSQL driver errors into API errors.
//
// Raw SQLSTATE codes are mapped onto a small set of categories (unique
// violation, foreign key violation, ...) and then into errs.HTTPError values
// with stable machine codes such as PROJECT_ALREADY_EXISTS.
package sqlerr

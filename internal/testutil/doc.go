// Package testutil holds helpers shared by unit and integration tests
package testutil

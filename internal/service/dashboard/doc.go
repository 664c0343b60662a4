// Package dashboard serves the analytics views of the lead CRM.
//
// Each view fetches its inputs through the Repository, fanning independent
// queries out concurrently, and hands the collections to the pure
// analytics.Engine once every fetch has succeeded. A failed fetch fails the
// whole view; partial dashboards are never returned.
//
// The service layer depends only on the Repository and Cache interfaces
// defined in repository.go. It never imports net/http or database/sql.
package dashboard

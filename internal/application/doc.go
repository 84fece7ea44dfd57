// Package application provides application initialization and dependency wiring.
// It builds the composer, template renderer, locale negotiation, asset
// bundles, session store, library blueprint, error pages, analytics and
// HTTP server from a validated configuration, keeping the main package
// focused on CLI parsing and orchestration.
package application

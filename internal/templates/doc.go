// Package templates renders HTML pages and provides the helper functions
// exposed to them (date and creator formatting, the coming-soon predicate).
package templates

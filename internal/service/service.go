// Package service contains the business logic.
//
// It sits between the handler layer and the template engine.
// It receives bound request data from the handler, performs the
// render pipeline, and reports every failure as an *errs.HTTPError.
package service

// Package lib acts as a library for modules that do not fit
// strictly into other layers.
//
// It contains the document template engine (docx) and small
// shared helpers (utils).
package lib

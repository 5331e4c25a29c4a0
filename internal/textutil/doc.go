// Package textutil holds small string helpers for building file names.
package textutil

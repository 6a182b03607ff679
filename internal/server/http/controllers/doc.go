// Package controllers holds the HTTP handlers for the calculator log API.
// Errors are answered as {"message": ...} with the status chosen here, in
// one place per sentinel.
package controllers

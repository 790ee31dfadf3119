// Package invoke is the tool dispatch layer: a registry mapping tool
// names to handlers, and an invoker that validates arguments against
// the declared schema, runs the handler under a timeout, and converts
// every outcome into the uniform result envelope. No exception-like
// failure ever crosses this boundary unconverted.
package invoke

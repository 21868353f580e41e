// Package bundle models a two-item product bundle as it arrives from the
// storefront cart: free-form line-item properties, quantities, and the
// derivation of deterministic variant lookup keys from selected options.
package bundle

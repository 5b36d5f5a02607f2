// Package integrand provides the registry that makes integrands available by name.
//
// Closures cannot cross process boundaries, so a multi-process deployment refers to an
// integrand through a types.IntegrandRef and every process resolves that reference
// against an identically populated registry.
package integrand

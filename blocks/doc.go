// Package blocks provides the built-in block library: vector source and
// sink, element-wise arithmetic, rate-changing blocks, and message-side
// utility blocks. Each block ships a factory for registry-driven
// construction from JSON config alongside its programmatic constructor.
package blocks

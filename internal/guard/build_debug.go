//go:build debug

package guard

const debugBuild = true

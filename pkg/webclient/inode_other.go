//go:build !unix

package webclient

func inodeOf(string) uint64 { return 0 }

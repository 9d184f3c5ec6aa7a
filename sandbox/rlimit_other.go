//go:build !linux

package sandbox

const limitsSupported = false

// Apply is a no-op off Linux. Policy.Build refuses limit requests on these
// platforms, so non-zero limits never reach here.
func (l Limits) Apply(pid int) error {
	if l.CPUSeconds > 0 || l.MemoryBytes > 0 {
		return &CapabilityError{Restriction: "resource limits"}
	}
	return nil
}

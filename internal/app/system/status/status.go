// internal/app/system/status/status.go
package status

// Account/record statuses shared by stores.
const (
	Active   = "active"
	Disabled = "disabled"
)

// IsValid reports whether s is a known status value.
func IsValid(s string) bool {
	return s == Active || s == Disabled
}

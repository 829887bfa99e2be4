// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic  SecurityLevel = iota // No authentication
	SecurityRefresh                      // Refresh token required
	SecurityAccess                       // Access token required
)

// EndpointSecurityConfig maps named API routes to their required security
// level. Admin checks happen in the service layer against the stored role.
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Auth - Public
	"auth.signup":           SecurityPublic,
	"auth.login":            SecurityPublic,
	"auth.firebase":         SecurityPublic,
	"auth.nickname.check":   SecurityPublic,
	"terms.get":             SecurityPublic,
	"health":                SecurityPublic,
	"metrics":               SecurityPublic,
	"storage.mock.upload":   SecurityPublic,
	"storage.mock.download": SecurityPublic,

	// Auth - Refresh Protected
	"auth.refresh": SecurityRefresh,

	// Catalog
	"items.list":        SecurityAccess,
	"items.get":         SecurityAccess,
	"items.create":      SecurityAccess,
	"items.update":      SecurityAccess,
	"items.delete":      SecurityAccess,
	"categories.list":   SecurityAccess,
	"categories.create": SecurityAccess,
	"categories.delete": SecurityAccess,
	"images.upload_url": SecurityAccess,

	// Rentals
	"rentals.create":   SecurityAccess,
	"rentals.mine":     SecurityAccess,
	"rentals.list":     SecurityAccess,
	"rentals.get":      SecurityAccess,
	"rentals.approve":  SecurityAccess,
	"rentals.complete": SecurityAccess,
	"rentals.cancel":   SecurityAccess,
	"rentals.delete":   SecurityAccess,

	// Chat
	"messages.list":   SecurityAccess,
	"messages.send":   SecurityAccess,
	"messages.stream": SecurityAccess,

	// Users / admin
	"users.me":           SecurityAccess,
	"users.list":         SecurityAccess,
	"users.set_role":     SecurityAccess,
	"users.delete":       SecurityAccess,
	"users.device_token": SecurityAccess,

	// Settings / notifications / stats
	"settings.get":       SecurityAccess,
	"settings.update":    SecurityAccess,
	"notifications.list": SecurityAccess,
	"notifications.read": SecurityAccess,
	"stats.get":          SecurityAccess,
}

// GetSecurityLevel returns the security level for a given route name
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[route]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAccess
}

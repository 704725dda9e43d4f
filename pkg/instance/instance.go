package instance

import "github.com/domeo/domeo-backend/pkg/env"

// GetID identifies this API process in logs. Heroku-style DYNO names are
// honored when no explicit ID is set.
func GetID() string {
	return env.First("local", "DOMEO_INSTANCE_ID", "DYNO")
}

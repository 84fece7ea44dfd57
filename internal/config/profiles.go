package config

// Profile is an environment-specific configuration object applied after the
// environment variables.
type Profile interface {
	Name() string
	Values() Mapping
}

// DevelopmentProfile is applied when DEBUG is enabled.
type DevelopmentProfile struct{}

func (DevelopmentProfile) Name() string { return "development" }

func (DevelopmentProfile) Values() Mapping {
	return Mapping{
		"LOG_LEVEL":             "debug",
		"TEMPLATES_AUTO_RELOAD": true,
		"SESSION_COOKIE_SECURE": false,
	}
}

// ProductionProfile is applied when DEBUG is disabled.
type ProductionProfile struct{}

func (ProductionProfile) Name() string { return "production" }

func (ProductionProfile) Values() Mapping {
	return Mapping{
		"TEMPLATES_AUTO_RELOAD": false,
		"SESSION_COOKIE_SECURE": true,
	}
}

// ProfileFor selects the profile matching the debug flag.
func ProfileFor(debug bool) Profile {
	if debug {
		return DevelopmentProfile{}
	}
	return ProductionProfile{}
}

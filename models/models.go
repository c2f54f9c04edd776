package models

// All lists every model for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Cause{},
		&Sponsorship{},
		&Claim{},
		&VerificationSession{},
	}
}

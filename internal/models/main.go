package models

// ModelRegistry lists the gorm models managed by --auto-migrate.
var ModelRegistry = []interface{}{
	&WaitlistInterest{},
}

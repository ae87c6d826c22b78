package directory

import (
	"medgate/internal/session/models"
	"medgate/pkg/domain"
)

// DemoUsers is one account per role, all sharing the configured demo password.
func DemoUsers() []models.Identity {
	return []models.Identity{
		{
			Role:    domain.RolePatient,
			Email:   "patient@hospital.org",
			Profile: models.Profile{Name: "John Carter", Contact: "+1 415 555 0101", Address: "12 Mission St, San Francisco"},
		},
		{
			Role:    domain.RoleDoctor,
			Email:   "doctor@hospital.org",
			Profile: models.Profile{Name: "Dr. Meredith Grey", Contact: "+1 415 555 0102"},
		},
		{
			Role:    domain.RoleAdmin,
			Email:   "admin@hospital.org",
			Profile: models.Profile{Name: "Hospital Admin"},
		},
		{
			Role:  domain.RolePharmacy,
			Email: "pharmacy@hospital.org",
		},
		{
			Role:  domain.RoleAccountant,
			Email: "billing.office@hospital.org",
		},
	}
}

// Seed registers every identity with password.
func (d *Directory) Seed(identities []models.Identity, password string) error {
	for _, identity := range identities {
		if _, err := d.Register(identity, password); err != nil {
			return err
		}
	}
	return nil
}

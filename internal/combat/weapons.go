package combat

import (
	"time"

	"zombie-siege/internal/entity"
)

// WeaponSpec describes the authoritative numbers for one weapon.
type WeaponSpec struct {
	Name         entity.Weapon
	Damage       float64
	FireInterval time.Duration
	// Pellets is the number of hits a single trigger pull may produce.
	Pellets int
	Range   float64
}

var weapons = map[entity.Weapon]WeaponSpec{
	entity.WeaponPistol: {
		Name:         entity.WeaponPistol,
		Damage:       25,
		FireInterval: 500 * time.Millisecond,
		Pellets:      1,
		Range:        100,
	},
	entity.WeaponShotgun: {
		Name:         entity.WeaponShotgun,
		Damage:       15,
		FireInterval: time.Second,
		Pellets:      5,
		Range:        40,
	},
	entity.WeaponMachineGun: {
		Name:         entity.WeaponMachineGun,
		Damage:       10,
		FireInterval: 100 * time.Millisecond,
		Pellets:      1,
		Range:        100,
	},
}

// LookupWeapon returns the spec for a known weapon.
func LookupWeapon(name entity.Weapon) (WeaponSpec, bool) {
	spec, ok := weapons[name]
	return spec, ok
}

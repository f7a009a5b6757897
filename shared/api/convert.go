package api

import "github.com/compass-ms/usernotify/shared/domain"

// FromUser maps a domain record to its outward shape. The password hash is
// deliberately not part of UserResponse.
func FromUser(u domain.User) UserResponse {
	return UserResponse{
		Username: u.Username,
		Email:    u.Email,
		Address: AddressResponse{
			ZipCode:      u.Address.ZipCode,
			Street:       u.Address.Street,
			Complement:   u.Address.Complement,
			Neighborhood: u.Address.Neighborhood,
			City:         u.Address.City,
			State:        u.Address.State,
		},
	}
}

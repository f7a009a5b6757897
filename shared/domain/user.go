package domain

type UserId = int64

// User is the durable account record. Email and Username are each unique
// across the store; PassHash never leaves the service boundary.
type User struct {
	Id       UserId
	Username string
	Email    string
	PassHash string
	Address  Address
}

// Address is resolved from the registration zip code and stored with the user.
type Address struct {
	ZipCode      string
	Street       string
	Complement   string
	Neighborhood string
	City         string
	State        string
}

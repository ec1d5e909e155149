package entities

// Credentials is opaque authentication material. A non-empty Username selects
// basic authentication, otherwise Token is sent as a bearer token.
type Credentials struct {
	Username string
	Password string
	Token    string
}

// IsEmpty reports whether no usable material is present.
func (c Credentials) IsEmpty() bool {
	return c.Username == "" && c.Token == ""
}

// IsBasic reports whether basic authentication will be used.
func (c Credentials) IsBasic() bool {
	return c.Username != ""
}

// Equal compares two credential sets.
func (c Credentials) Equal(other Credentials) bool {
	return c == other
}

// String never reveals secrets.
func (c Credentials) String() string {
	switch {
	case c.IsBasic():
		return "basic(" + c.Username + ")"
	case c.Token != "":
		return "token(********)"
	default:
		return "none"
	}
}

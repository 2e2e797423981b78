package paramsign

// Credentials identify the caller on every signed request.
type Credentials struct {
	// Token is sent in the token header. Required.
	Token string `yaml:"token" json:"token"`

	// Nonce is sent in the nonce header. Required by Validate.
	Nonce string `yaml:"nonce" json:"nonce"`

	// User is an optional user identifier. It is sent and signed only when
	// the signing configuration asks for it.
	User string `yaml:"user" json:"user"`

	// Secret is the signing key. It is never transmitted. When empty, Token
	// is used as the key, which is what existing servers expect.
	Secret string `yaml:"secret" json:"-"`
}

// Validate reports whether the credentials can be used for signing.
func (c Credentials) Validate() error {
	if c.Token == "" {
		return ErrTokenRequired
	}

	if c.Nonce == "" {
		return ErrNonceRequired
	}

	return nil
}

// IsZero reports whether no credentials are configured.
func (c Credentials) IsZero() bool {
	return c == Credentials{}
}

// SigningKey returns the key used to sign requests.
func (c Credentials) SigningKey() string {
	if c.Secret != "" {
		return c.Secret
	}

	return c.Token
}

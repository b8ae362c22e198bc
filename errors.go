package sb1ynab

import "fmt"

// ConfigError means the external configuration is missing or invalid. It is
// raised before any network call is made.
type ConfigError struct {
	// Setting is the environment variable or file at fault
	Setting string
	Err     error
}

func (e ConfigError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("config: %s is not set", e.Setting)
	}
	return fmt.Sprintf("config: %s: %s", e.Setting, e.Err)
}

func (e ConfigError) Unwrap() error { return e.Err }

// AuthError means an access token could not be obtained or refreshed
type AuthError struct {
	Err error
}

func (e AuthError) Error() string {
	return fmt.Sprintf("authorization: %s", e.Err)
}

func (e AuthError) Unwrap() error { return e.Err }

// RemoteError is returned when an external API responds with a non-success
// status or a body that cannot be parsed. The original status and body are
// kept for diagnostics.
type RemoteError struct {
	// API is the remote end, "sparebank1" or "ynab"
	API        string
	StatusCode int
	Body       string
	Err        error
}

func (e RemoteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.API, e.Err)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.API, e.StatusCode, e.Body)
}

func (e RemoteError) Unwrap() error { return e.Err }

// Is reports whether target is a RemoteError
func (e RemoteError) Is(target error) bool {
	_, ok := target.(RemoteError)
	return ok
}

// UnmappedAccountError means a fetched transaction belongs to an account with
// no entry in the AccountMap. It fails the entire batch: importing a
// transaction into the wrong YNAB account is worse than stopping.
type UnmappedAccountError struct {
	AccountKey string
}

func (e UnmappedAccountError) Error() string {
	return fmt.Sprintf("no YNAB account mapped for bank account %q", e.AccountKey)
}

// Is reports whether target is an UnmappedAccountError
func (e UnmappedAccountError) Is(target error) bool {
	_, ok := target.(UnmappedAccountError)
	return ok
}

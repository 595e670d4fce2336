package engine

import (
	"context"
	"fmt"
)

// ServiceOption is one entry of a service selection list
type ServiceOption struct {
	ID       ServiceID `json:"id"`
	Name     string    `json:"name"`
	Selected bool      `json:"selected"`
}

// ListServices returns the services visible to the credential, marking the
// one named selected. Errors are returned as-is; there is no fallback list.
func ListServices(ctx context.Context, lister ServiceLister, selected string) ([]ServiceOption, error) {
	services, err := lister.ListServices(ctx)
	if err != nil {
		return nil, err
	}

	options := make([]ServiceOption, 0, len(services))
	for _, svc := range services {
		options = append(options, ServiceOption{
			ID:       svc.ID,
			Name:     svc.Name,
			Selected: selected != "" && svc.Name == selected,
		})
	}
	return options, nil
}

// Diagnostic is the result of a connectivity self-test
type Diagnostic struct {
	OK       bool   `json:"ok"`
	Username string `json:"username,omitempty"`
	Message  string `json:"message"`
}

// TestConnection validates a credential. When expectedUser is set it must
// match the owner of the token.
func TestConnection(ctx context.Context, auth Authenticator, expectedUser string) Diagnostic {
	username, err := auth.AuthenticateUser(ctx)
	if err != nil {
		return Diagnostic{
			Message: fmt.Sprintf("Couldn't connect. Please check your token and internet connection.\n%v", err),
		}
	}
	if username == "" {
		return Diagnostic{Message: "Couldn't connect. Please check your token and internet connection."}
	}
	if expectedUser != "" && username != expectedUser {
		return Diagnostic{Username: username, Message: "Username and token don't match"}
	}
	return Diagnostic{OK: true, Username: username, Message: "Success"}
}

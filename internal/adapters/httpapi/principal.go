package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/andrescamacho/mediator-go/internal/application/auth"
	"github.com/andrescamacho/mediator-go/internal/domain/shared"
)

// Identity headers set by the gateway in front of the service
const (
	HeaderSubject    = "X-Subject"
	HeaderCustomerID = "X-Customer-ID"
	HeaderRoles      = "X-Roles"
)

// principalFromRequest reads the caller identity. ok is false when the request
// carries no identity at all.
func principalFromRequest(r *http.Request) (auth.Principal, bool, *shared.Error) {
	subject := strings.TrimSpace(r.Header.Get(HeaderSubject))
	rawCustomer := strings.TrimSpace(r.Header.Get(HeaderCustomerID))
	rawRoles := strings.TrimSpace(r.Header.Get(HeaderRoles))
	if subject == "" && rawCustomer == "" && rawRoles == "" {
		return auth.Principal{}, false, nil
	}

	var p auth.Principal
	if rawCustomer != "" {
		id, err := strconv.ParseInt(rawCustomer, 10, 64)
		if err != nil || id < 0 {
			return auth.Principal{}, false, shared.Validation(shared.FieldError{
				Field:   HeaderCustomerID,
				Message: "must be a non-negative integer",
			})
		}
		p.CustomerID = id
	}
	for _, role := range strings.Split(rawRoles, ",") {
		if role = strings.TrimSpace(role); role != "" {
			p.Roles = append(p.Roles, role)
		}
	}

	p.Subject = subject
	if p.Subject == "" {
		p.Subject = "customer:" + strconv.FormatInt(p.CustomerID, 10)
	}
	return p, true, nil
}

// scope is the customer id a principal's lookups are limited to; admins are unscoped
func scope(p auth.Principal) int64 {
	if p.HasRole(auth.RoleAdmin) {
		return 0
	}
	return p.CustomerID
}

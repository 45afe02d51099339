package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidateConfig checks the struct tags first and then the rules that span sections
func ValidateConfig(cfg *Config) error {
	if err := validateTags(cfg); err != nil {
		return err
	}
	return errors.Join(
		validateListeners(cfg),
		validatePolicyFile(cfg.Policy),
	)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateTags(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}
	messages := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		rule := e.Tag()
		if e.Param() != "" {
			rule += "=" + e.Param()
		}
		messages = append(messages, fmt.Sprintf("field '%s' failed validation: %s (value: '%v')", e.Namespace(), rule, e.Value()))
	}
	return fmt.Errorf("validation failed:\n  %s", strings.Join(messages, "\n  "))
}

// validateListeners rejects a metrics endpoint bound to the API address
func validateListeners(cfg *Config) error {
	if !cfg.Metrics.Enabled {
		return nil
	}
	metricsAddr := net.JoinHostPort(cfg.Metrics.Host, strconv.Itoa(cfg.Metrics.Port))
	if metricsAddr == cfg.Server.Address {
		return fmt.Errorf("metrics endpoint %s collides with server.address", metricsAddr)
	}
	return nil
}

func validatePolicyFile(cfg PolicyConfig) error {
	if cfg.Path == "" {
		return nil
	}
	info, err := os.Stat(cfg.Path)
	if err != nil {
		return fmt.Errorf("policy.path: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("policy.path %s is a directory", cfg.Path)
	}
	return nil
}

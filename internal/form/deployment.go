package form

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Deployment куда отправляет записи конкретная установка формы.
//
//	variant: partner
//	endpoint: https://visits.example.com
//	timeout: 15s
type Deployment struct {
	Variant  string        `yaml:"variant" validate:"required,oneof=partner realfincorp"`
	Endpoint string        `yaml:"endpoint" validate:"required,url"`
	Timeout  time.Duration `yaml:"timeout" validate:"min=0"`
}

func LoadDeployment(path string) (Deployment, error) {
	var d Deployment

	data, err := os.ReadFile(path)
	if err != nil {
		return d, fmt.Errorf("read deployment: %w", err)
	}
	if err := yaml.Unmarshal(data, &d); err != nil {
		return d, fmt.Errorf("parse deployment %s: %w", path, err)
	}
	if err := d.Validate(); err != nil {
		return d, err
	}
	return d, nil
}

func (d Deployment) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("invalid deployment: %w", err)
	}
	return nil
}

func (d Deployment) FormVariant() (Variant, error) {
	return VariantByName(d.Variant)
}

// CreateURL адрес создания записи для варианта.
func (d Deployment) CreateURL() (string, error) {
	v, err := d.FormVariant()
	if err != nil {
		return "", err
	}
	return strings.TrimRight(d.Endpoint, "/") + v.Path, nil
}

func (d Deployment) Submitter() (*HTTPSubmitter, error) {
	url, err := d.CreateURL()
	if err != nil {
		return nil, err
	}
	return NewHTTPSubmitter(url, d.Timeout), nil
}

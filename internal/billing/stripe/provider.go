package stripe

import (
	"context"

	"github.com/baselinedocs/baselinedocs/internal/billing/domain"
	stripego "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"go.uber.org/zap"
)

type Provider struct {
	api *client.API
	log *zap.Logger
}

func NewProvider(secretKey string, log *zap.Logger) *Provider {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Provider{
		api: api,
		log: log.Named("billing.stripe"),
	}
}

func (p *Provider) CreateCustomer(ctx context.Context, req domain.CreateCustomerRequest) (string, error) {
	params := &stripego.CustomerParams{
		Params: stripego.Params{Context: ctx},
		Email:  stripego.String(req.Email),
		Name:   stripego.String(req.Name),
	}
	for key, value := range req.Metadata {
		params.AddMetadata(key, value)
	}

	customer, err := p.api.Customers.New(params)
	if err != nil {
		p.log.Warn("stripe customer creation failed", zap.Error(err))
		return "", err
	}
	return customer.ID, nil
}

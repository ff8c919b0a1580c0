// Package weather proxies current conditions from OpenWeatherMap so clients
// can attach observed weather to mood entries without holding the API key.
package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/skylog-app/skylog/internal/model"
)

// Provider returns current conditions for a coordinate.
type Provider interface {
	Current(ctx context.Context, lat, lon float64) (*model.ExternalWeather, error)
}

// OpenWeatherMap calls the provider's current-weather endpoint in metric
// units. Transient failures are retried with exponential backoff inside the
// request deadline.
type OpenWeatherMap struct {
	client *resty.Client
	apiKey string
	log    zerolog.Logger
}

func NewOpenWeatherMap(baseURL, apiKey string, log zerolog.Logger) *OpenWeatherMap {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second)
	return &OpenWeatherMap{client: client, apiKey: apiKey, log: log}
}

type owmResponse struct {
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
}

func (o *OpenWeatherMap) Current(ctx context.Context, lat, lon float64) (*model.ExternalWeather, error) {
	var out owmResponse

	op := func() error {
		resp, err := o.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"lat":   fmt.Sprintf("%.4f", lat),
				"lon":   fmt.Sprintf("%.4f", lon),
				"appid": o.apiKey,
				"units": "metric",
			}).
			SetResult(&out).
			Get("/data/2.5/weather")
		if err != nil {
			return err
		}
		if resp.IsError() {
			err := fmt.Errorf("weather provider returned %d", resp.StatusCode())
			if resp.StatusCode() >= 500 || resp.StatusCode() == 429 {
				return err
			}
			return backoff.Permanent(err)
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, errors.Wrap(err, "fetch current weather")
	}

	w := &model.ExternalWeather{
		Temp:      out.Main.Temp,
		FeelsLike: out.Main.FeelsLike,
		Humidity:  out.Main.Humidity,
	}
	if len(out.Weather) > 0 {
		w.WeatherMain = out.Weather[0].Main
		w.WeatherDescription = out.Weather[0].Description
		w.Icon = out.Weather[0].Icon
	}
	return w, nil
}

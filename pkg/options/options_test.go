package options

import (
	"testing"
	"time"
)

func TestMqttOptionsDefaultsAreValid(t *testing.T) {
	if errs := NewMqttOptions().Validate(); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestMqttOptionsValidate(t *testing.T) {
	o := NewMqttOptions()
	o.Broker = ""
	o.KeepAlive = 0
	o.ConnectTimeout = 0
	o.QoS = 3

	if errs := o.Validate(); len(errs) != 4 {
		t.Fatalf("got %d errors, want 4: %v", len(errs), errs)
	}
}

func TestMqttOptionsToClientConfig(t *testing.T) {
	o := NewMqttOptions()
	cfg := o.ToClientConfig()

	if cfg.BrokerURL != "tcp://192.168.28.96:1884" || cfg.ClientID != "SensorClient" {
		t.Fatalf("unexpected endpoint %+v", cfg)
	}
	if cfg.KeepAlive != 60 {
		t.Fatalf("KeepAlive = %d, want 60", cfg.KeepAlive)
	}
	if cfg.ConnectTimeout != 5*time.Second {
		t.Fatalf("ConnectTimeout = %s", cfg.ConnectTimeout)
	}
}

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		addr    string
		wantErr bool
	}{
		{":8080", false},
		{"0.0.0.0:8080", false},
		{"localhost:0", false},
		{"8080", true},
		{"host:http", true},
		{"host:70000", true},
	}

	for _, tt := range tests {
		if err := ValidateAddress(tt.addr); (err != nil) != tt.wantErr {
			t.Errorf("ValidateAddress(%q) error = %v, wantErr %v", tt.addr, err, tt.wantErr)
		}
	}
}

func TestPublishOptionsValidate(t *testing.T) {
	o := NewPublishOptions()
	if errs := o.Validate(); len(errs) != 0 {
		t.Fatalf("defaults invalid: %v", errs)
	}
	o.AckTimeout = 0
	o.GracePeriod = -time.Second
	if errs := o.Validate(); len(errs) != 2 {
		t.Fatalf("got %d errors, want 2", len(errs))
	}
}

func TestRelayOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		group   string
		wantErr bool
	}{
		{"default", "adas/detections", "", false},
		{"wildcards", "adas/+/#", "canrelay", false},
		{"empty", "", "", true},
		{"hash not last", "adas/#/x", "", true},
		{"bad group", "adas/detections", "a/b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &RelayOptions{InputTopic: tt.topic, ShareGroup: tt.group}
			if errs := o.Validate(); (len(errs) != 0) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", errs, tt.wantErr)
			}
		})
	}
}

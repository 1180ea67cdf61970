// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package aws

import (
	"fmt"

	"github.com/caarlos0/env/v9"
)

// InstanceIDKey is the env key the launched instance ID is persisted under.
const InstanceIDKey = "EC2_INSTANCE_ID"

// Settings are the credentials and resource identifiers read from the
// environment (the process env plus the loaded .env file).
type Settings struct {
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	SessionToken    string `env:"AWS_SESSION_TOKEN"`
	Region          string `env:"AWS_DEFAULT_REGION"`
	RegionFallback  string `env:"AWS_REGION"`
	Profile         string `env:"AWS_PROFILE"`

	InstanceID       string   `env:"EC2_INSTANCE_ID"`
	AMI              string   `env:"EC2_AMI_ID"`
	InstanceType     string   `env:"EC2_INSTANCE_TYPE" envDefault:"t3.micro"`
	KeyName          string   `env:"EC2_KEY_NAME"`
	SubnetID         string   `env:"EC2_SUBNET_ID"`
	SecurityGroupIDs []string `env:"EC2_SECURITY_GROUP_IDS" envSeparator:","`
}

// ParseSettings decodes Settings from the process environment.
func ParseSettings() (Settings, error) {
	return parseSettings(env.Options{})
}

func parseSettings(opts env.Options) (Settings, error) {
	var s Settings
	if err := env.ParseWithOptions(&s, opts); err != nil {
		return Settings{}, fmt.Errorf("could not parse environment variables: %w", err)
	}
	return s, nil
}

// EffectiveRegion prefers AWS_DEFAULT_REGION over AWS_REGION.
func (s Settings) EffectiveRegion() string {
	if s.Region != "" {
		return s.Region
	}
	return s.RegionFallback
}

// HasStaticCredentials reports whether a key pair was supplied directly.
func (s Settings) HasStaticCredentials() bool {
	return s.AccessKeyID != "" && s.SecretAccessKey != ""
}

// ConfigOptions turns the settings into LoadAWSConfig options.
func (s Settings) ConfigOptions() []Option {
	var opts []Option
	if s.HasStaticCredentials() {
		opts = append(opts, WithStaticCredentials(s.AccessKeyID, s.SecretAccessKey, s.SessionToken))
	} else if s.Profile != "" {
		opts = append(opts, WithProfile(s.Profile))
	}
	if r := s.EffectiveRegion(); r != "" {
		opts = append(opts, WithRegion(r))
	}
	return opts
}

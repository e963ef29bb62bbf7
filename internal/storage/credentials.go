// Copyright 2026 The Neuract Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/neuract/agent/internal/agenterr"
)

// LoadCredentials reads user/password out of section of an INI file at
// path, the same .my.cnf-shaped secret-file convention the teacher
// uses for its MySQL DSN (config.go's newMyConfig/validateMyConfig),
// generalized here to any storage target named by section.
func LoadCredentials(path, section string) (user, password string, err error) {
	opts := ini.LoadOptions{AllowBooleanKeys: true}
	cfg, err := ini.LoadSources(opts, path)
	if err != nil {
		return "", "", agenterr.Wrap(agenterr.ConfigError, "load storage credentials file", err)
	}

	sec, err := cfg.GetSection(section)
	if err != nil {
		return "", "", agenterr.New(agenterr.ConfigError, fmt.Sprintf("credentials file has no [%s] section", section))
	}
	if !sec.HasKey("user") || sec.Key("user").String() == "" {
		return "", "", agenterr.New(agenterr.ConfigError, fmt.Sprintf("no user specified under [%s]", section))
	}
	if !sec.HasKey("password") || sec.Key("password").String() == "" {
		return "", "", agenterr.New(agenterr.ConfigError, fmt.Sprintf("no password specified under [%s]", section))
	}

	return sec.Key("user").String(), sec.Key("password").String(), nil
}

// WithCredentials merges user/password into connectionString when it
// doesn't already carry its own, the same "credentials file fills in
// what the DSN omits" behavior as formDSN. Connection strings that
// already carry a "user:password@" prefix are returned unchanged.
func WithCredentials(connectionString, user, password string) string {
	if strings.Contains(connectionString, "@") {
		return connectionString
	}
	return fmt.Sprintf("%s:%s@%s", user, password, connectionString)
}

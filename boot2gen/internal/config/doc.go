// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads the list of boot2 variants to generate and the
// parameters shared by all of them from a YAML file.
package config

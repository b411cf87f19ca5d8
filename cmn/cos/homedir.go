// Package cos provides common low-level types and utilities for all dss packages
/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"os"
	"os/user"
	"path/filepath"

	"github.com/NVIDIA/dss/cmn/nlog"
)

const homeConfigsDir = ".config"

func HomeDir() (string, error) {
	currentUser, err := user.Current()
	if err != nil {
		nlog.Errorf("%v", err)
		return os.UserHomeDir()
	}
	return currentUser.HomeDir, nil
}

// $HOME/.config/<app>
func HomeConfigDir(app string) string {
	home, err := HomeDir()
	if err != nil {
		nlog.Errorf("%v", err)
	}
	return filepath.Join(home, homeConfigsDir, app)
}

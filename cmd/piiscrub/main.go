// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"

	"piiscrub/pkg/cli"
)

func main() {
	os.Exit(cli.Run())
}

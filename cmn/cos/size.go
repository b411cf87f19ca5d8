/*
 * Copyright (c) 2018-2026, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import "fmt"

func ToSizeIEC(b int64, digits int) string {
	switch {
	case b >= GiB:
		return fmt.Sprintf("%.*f%s", digits, float64(b)/float64(GiB), "GiB")
	case b >= MiB:
		return fmt.Sprintf("%.*f%s", digits, float64(b)/float64(MiB), "MiB")
	case b >= KiB:
		return fmt.Sprintf("%.*f%s", digits, float64(b)/float64(KiB), "KiB")
	default:
		return fmt.Sprintf("%dB", b)
	}
}

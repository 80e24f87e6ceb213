package cygrid

import "math"

// HEALPix geometry, RING numbering scheme throughout. This is the
// equal-area hashing scheme the gridder uses as a rendezvous structure
// between inputs and outputs; it is never exposed to callers as a
// coordinate system of its own. The derivation below follows the standard
// public HEALPix algorithm (Górski et al. 2005).

// hpxResolution bundles a chosen nside with its derived order and angular
// resolution, so SetKernel can compare a newly chosen resolution with the
// current one and skip the hash-table rebuild when it is unchanged.
type hpxResolution struct {
	nside      int
	order      int
	resolution float64 // radians
}

// pixelResolution returns the characteristic HEALPix pixel resolution for a
// given nside, sqrt(pi/3)/nside radians.
func pixelResolution(nside int) float64 {
	return math.Sqrt(math.Pi/3.0) / float64(nside)
}

// nsideForResolution returns the smallest nside (a power of two) whose pixel
// resolution is less than or equal to maxResRad, i.e. the coarsest grid that
// still resolves the requested detail.
func nsideForResolution(maxResRad float64) hpxResolution {
	minNside := math.Sqrt(math.Pi/3.0) / maxResRad
	nside := 1
	for float64(nside) < minNside {
		nside *= 2
	}
	order := 0
	for n := nside; n > 1; n >>= 1 {
		order++
	}
	return hpxResolution{nside: nside, order: order, resolution: pixelResolution(nside)}
}

// ang2pix returns the RING-scheme HEALPix pixel id containing (lonRad,
// latRad) at the given nside.
func ang2pix(nside int, lonRad, latRad float64) int {
	theta := math.Pi/2.0 - latRad
	phi := wrap2Pi(lonRad)
	return ang2pixRing(nside, theta, phi)
}

// pix2ang returns the (lonRad, latRad) of the center of RING-scheme pixel id
// at the given nside.
func pix2ang(nside, id int) (lonRad, latRad float64) {
	theta, phi := pix2angRing(nside, id)
	return phi, math.Pi/2.0 - theta
}

func ang2pixRing(nside int, theta, phi float64) int {
	n := float64(nside)
	z := math.Cos(theta)
	za := math.Abs(z)
	tt := phi * (2.0 / math.Pi) // in [0,4)

	ncap := 2 * nside * (nside - 1)
	npix := 12 * nside * nside

	if za <= 2.0/3.0 {
		temp1 := n * (0.5 + tt)
		temp2 := n * 0.75 * z
		jp := int(math.Floor(temp1 - temp2)) // ascending edge line index
		jm := int(math.Floor(temp1 + temp2)) // descending edge line index

		ir := nside + 1 + jp - jm // ring number counted from z=2/3 to z=-2/3
		kshift := 1 - (ir & 1)    // 1 if ir even, 0 if odd

		ip := (jp + jm - nside + kshift + 1) / 2
		ip = ((ip % (4 * nside)) + 4*nside) % (4 * nside)

		return ncap + (ir-1)*4*nside + ip
	}

	tp := tt - math.Floor(tt)
	tmp := n * math.Sqrt(3.0*(1.0-za))

	jp := int(tp * tmp)       // increasing edge line index
	jm := int((1.0 - tp) * tmp) // decreasing edge line index

	ir := jp + jm + 1 // ring number counted from the closest pole
	ip := int(tt * float64(ir))
	ip = ((ip % (4 * ir)) + 4*ir) % (4 * ir)

	if z > 0 {
		return 2*ir*(ir-1) + ip
	}
	return npix - 2*ir*(ir+1) + ip
}

func pix2angRing(nside, ipix int) (theta, phi float64) {
	n := float64(nside)
	npix := 12 * nside * nside
	ncap := 2 * nside * (nside - 1)

	switch {
	case ipix < ncap:
		// North polar cap.
		iring := int((1.0 + math.Sqrt(1.0+2.0*float64(ipix))) / 2.0)
		iphi := (ipix + 1) - 2*iring*(iring-1)

		theta = math.Acos(1.0 - float64(iring*iring)/(3.0*n*n))
		phi = (float64(iphi) - 0.5) * math.Pi / (2.0 * float64(iring))
	case ipix < npix-ncap:
		// Equatorial belt.
		ip := ipix - ncap
		iring := ip/(4*nside) + nside
		iphi := ip%(4*nside) + 1

		fodd := 0.5 * (1.0 + float64((iring+nside)%2))
		z := float64(2*nside-iring) * 2.0 / (3.0 * n)

		theta = math.Acos(z)
		phi = (float64(iphi) - fodd) * math.Pi / (2.0 * n)
	default:
		// South polar cap.
		ip := npix - ipix
		iring := int((1.0 + math.Sqrt(2.0*float64(ip)-1.0)) / 2.0)
		iphi := 4*iring + 1 - (ip - 2*iring*(iring-1))

		theta = math.Acos(-1.0 + float64(iring*iring)/(3.0*n*n))
		phi = (float64(iphi) - 0.5) * math.Pi / (2.0 * float64(iring))
	}
	return theta, phi
}

// ringLayout returns the absolute id of the first pixel in RING-ordering
// ring number ring (counted 1..4*nside-1 from the north pole), the number of
// pixels the ring holds, the azimuthal phase offset of pixel 0 within the
// ring (in units of the ring's pixel spacing), and the z = sin(latitude) of
// the ring's pixel centers.
func ringLayout(nside, ring int) (startPix, numInRing int, phase, z float64) {
	npix := 12 * nside * nside
	n := float64(nside)

	switch {
	case ring <= nside-1:
		ir := ring
		numInRing = 4 * ir
		startPix = 2 * ir * (ir - 1)
		phase = 0.5
		z = 1.0 - float64(ir*ir)/(3.0*n*n)
	case ring <= 3*nside:
		ir := ring
		numInRing = 4 * nside
		startPix = 2*nside*(nside-1) + (ir-nside)*4*nside
		fodd := 0.5 * (1.0 + float64((ir+nside)%2))
		phase = 1.0 - fodd
		z = float64(2*nside-ir) * 2.0 / (3.0 * n)
	default:
		ir := 4*nside - ring
		numInRing = 4 * ir
		startPix = npix - 2*ir*(ir+1)
		phase = 0.5
		z = -(1.0 - float64(ir*ir)/(3.0*n*n))
	}
	return
}

// ringNumApprox estimates the RING-scheme ring number (1..4*nside-1,
// counted from the north pole) containing z = sin(latitude). It is used
// only to bound the ring range queryDisc needs to walk; small rounding
// error is acceptable because the disc selection within each candidate ring
// re-checks the exact angular distance via spherical trigonometry.
func ringNumApprox(nside int, z float64) int {
	n := float64(nside)
	var ir int
	switch {
	case z > 2.0/3.0:
		ir = int(math.Round(n * math.Sqrt(3.0*(1.0-z))))
	case z < -2.0/3.0:
		ir = 4*nside - int(math.Round(n*math.Sqrt(3.0*(1.0+z))))
	default:
		ir = int(math.Round(n * (2.0 - 1.5*z)))
	}
	if ir < 1 {
		ir = 1
	}
	if ir > 4*nside-1 {
		ir = 4*nside - 1
	}
	return ir
}

// queryDisc returns the set of RING-scheme HEALPix pixel ids whose centers
// lie within radiusRad of (lonRad, latRad), with a small inclusive halo at
// the disc boundary. Discs crossing a pole return the pole's entire ring(s);
// discs crossing lon=0 wrap correctly because pixel selection within a ring
// is done modulo the ring's pixel count.
func queryDisc(nside int, lonRad, latRad, radiusRad float64) []int {
	lon0 := wrap2Pi(lonRad)
	sinLat0, cosLat0 := math.Sincos(latRad)
	cosRadius := math.Cos(radiusRad)

	// A disc that reaches past a pole covers every ring up to that pole.
	zMax, zMin := 1.0, -1.0
	if latRad+radiusRad < math.Pi/2 {
		zMax = math.Sin(latRad + radiusRad)
	}
	if latRad-radiusRad > -math.Pi/2 {
		zMin = math.Sin(latRad - radiusRad)
	}

	ringLo := ringNumApprox(nside, zMax) - 2
	ringHi := ringNumApprox(nside, zMin) + 2
	if ringLo < 1 {
		ringLo = 1
	}
	if ringHi > 4*nside-1 {
		ringHi = 4*nside - 1
	}

	var out []int
	for ring := ringLo; ring <= ringHi; ring++ {
		startPix, numInRing, phase, z := ringLayout(nside, ring)
		latRing := math.Asin(math.Max(-1.0, math.Min(1.0, z)))
		sinLatRing, cosLatRing := math.Sincos(latRing)

		denom := cosLat0 * cosLatRing
		const nearPole = 1e-9

		if denom < nearPole {
			// Center or ring both effectively at a pole: any azimuth on
			// this ring is reachable if the colatitude difference alone
			// is within radius.
			if math.Abs(latRing-latRad) <= radiusRad {
				for j := 0; j < numInRing; j++ {
					out = append(out, startPix+j)
				}
			}
			continue
		}

		cosDLon := (cosRadius - sinLat0*sinLatRing) / denom
		switch {
		case cosDLon >= 1.0:
			// No azimuth on this ring satisfies the radius; skip.
			continue
		case cosDLon <= -1.0:
			// Every azimuth on this ring is within radius.
			for j := 0; j < numInRing; j++ {
				out = append(out, startPix+j)
			}
		default:
			dLonHalf := math.Acos(cosDLon)
			step := 2 * math.Pi / float64(numInRing)

			jLo := int(math.Floor((lon0-dLonHalf)/step - phase))
			jHi := int(math.Ceil((lon0+dLonHalf)/step - phase))

			span := jHi - jLo + 1
			if span > numInRing {
				span = numInRing
			}
			for k := 0; k < span; k++ {
				j := jLo + k
				j = ((j % numInRing) + numInRing) % numInRing
				out = append(out, startPix+j)
			}
		}
	}
	return out
}

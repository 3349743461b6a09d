package geocoding

// bounds is a rectangular lat/lng box.
type bounds struct {
	minLat, maxLat float64
	minLng, maxLng float64
}

func (b bounds) contains(lat, lng float64) bool {
	return lat >= b.minLat && lat <= b.maxLat && lng >= b.minLng && lng <= b.maxLng
}

// stateBounds holds approximate bounding boxes for the 50 states plus DC.
// These are rectangles, not political boundaries; points near borders may
// classify into neighboring states. Acceptable for territory screening.
var stateBounds = map[string]bounds{
	"AL": {30.14, 35.01, -88.47, -84.89},
	"AK": {51.21, 71.37, -179.15, -129.98},
	"AZ": {31.33, 37.00, -114.82, -109.05},
	"AR": {33.00, 36.50, -94.62, -89.64},
	"CA": {32.53, 42.01, -124.41, -114.13},
	"CO": {36.99, 41.00, -109.06, -102.04},
	"CT": {40.95, 42.05, -73.73, -71.79},
	"DE": {38.45, 39.84, -75.79, -75.05},
	"DC": {38.79, 38.99, -77.12, -76.91},
	"FL": {24.40, 31.00, -87.63, -80.03},
	"GA": {30.36, 35.00, -85.61, -80.84},
	"HI": {18.91, 22.24, -160.25, -154.81},
	"ID": {41.99, 49.00, -117.24, -111.04},
	"IL": {36.97, 42.51, -91.51, -87.02},
	"IN": {37.77, 41.76, -88.10, -84.78},
	"IA": {40.38, 43.50, -96.64, -90.14},
	"KS": {36.99, 40.00, -102.05, -94.59},
	"KY": {36.50, 39.15, -89.57, -81.96},
	"LA": {28.93, 33.02, -94.04, -88.82},
	"ME": {43.06, 47.46, -71.08, -66.95},
	"MD": {37.91, 39.72, -79.49, -75.05},
	"MA": {41.24, 42.89, -73.51, -69.93},
	"MI": {41.70, 48.31, -90.42, -82.12},
	"MN": {43.50, 49.38, -97.24, -89.49},
	"MS": {30.17, 35.00, -91.66, -88.10},
	"MO": {35.99, 40.61, -95.77, -89.10},
	"MT": {44.36, 49.00, -116.05, -104.04},
	"NE": {40.00, 43.00, -104.05, -95.31},
	"NV": {35.00, 42.00, -120.01, -114.04},
	"NH": {42.70, 45.31, -72.56, -70.70},
	"NJ": {38.93, 41.36, -75.56, -73.89},
	"NM": {31.33, 37.00, -109.05, -103.00},
	"NY": {40.50, 45.02, -79.76, -71.86},
	"NC": {33.84, 36.59, -84.32, -75.46},
	"ND": {45.94, 49.00, -104.05, -96.55},
	"OH": {38.40, 41.98, -84.82, -80.52},
	"OK": {33.62, 37.00, -103.00, -94.43},
	"OR": {41.99, 46.29, -124.57, -116.46},
	"PA": {39.72, 42.27, -80.52, -74.69},
	"RI": {41.15, 42.02, -71.86, -71.12},
	"SC": {32.05, 35.22, -83.35, -78.54},
	"SD": {42.48, 45.95, -104.06, -96.44},
	"TN": {34.98, 36.68, -90.31, -81.65},
	"TX": {25.84, 36.50, -106.65, -93.51},
	"UT": {36.99, 42.00, -114.05, -109.04},
	"VT": {42.73, 45.02, -73.44, -71.47},
	"VA": {36.54, 39.47, -83.68, -75.24},
	"WA": {45.54, 49.00, -124.77, -116.92},
	"WV": {37.20, 40.64, -82.64, -77.72},
	"WI": {42.49, 47.08, -92.89, -86.81},
	"WY": {40.99, 45.01, -111.06, -104.05},
}

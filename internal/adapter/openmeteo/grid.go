package openmeteo

// GridLocations are the fixed points sampled for winter storm maps,
// weighted toward the southern and central states where ice and snow events
// are rare enough to be newsworthy.
var GridLocations = []Location{
	{Name: "Dallas", State: "TX", Lat: 32.78, Lon: -96.80},
	{Name: "Houston", State: "TX", Lat: 29.76, Lon: -95.37},
	{Name: "San Antonio", State: "TX", Lat: 29.42, Lon: -98.49},
	{Name: "Austin", State: "TX", Lat: 30.27, Lon: -97.74},
	{Name: "Lubbock", State: "TX", Lat: 33.58, Lon: -101.85},
	{Name: "Amarillo", State: "TX", Lat: 35.22, Lon: -101.83},
	{Name: "Midland", State: "TX", Lat: 31.99, Lon: -102.08},
	{Name: "Oklahoma City", State: "OK", Lat: 35.47, Lon: -97.52},
	{Name: "Tulsa", State: "OK", Lat: 36.15, Lon: -95.99},
	{Name: "Wichita", State: "KS", Lat: 37.69, Lon: -97.34},
	{Name: "Little Rock", State: "AR", Lat: 34.75, Lon: -92.29},
	{Name: "New Orleans", State: "LA", Lat: 29.95, Lon: -90.07},
	{Name: "Jackson", State: "MS", Lat: 32.30, Lon: -90.18},
	{Name: "Birmingham", State: "AL", Lat: 33.52, Lon: -86.81},
	{Name: "Mobile", State: "AL", Lat: 30.69, Lon: -88.04},
	{Name: "Memphis", State: "TN", Lat: 35.15, Lon: -90.05},
	{Name: "Nashville", State: "TN", Lat: 36.16, Lon: -86.78},
	{Name: "Atlanta", State: "GA", Lat: 33.75, Lon: -84.39},
	{Name: "Charlotte", State: "NC", Lat: 35.23, Lon: -80.84},
	{Name: "Raleigh", State: "NC", Lat: 35.78, Lon: -78.64},
	{Name: "Columbia", State: "SC", Lat: 34.00, Lon: -81.03},
	{Name: "Jacksonville", State: "FL", Lat: 30.33, Lon: -81.66},
	{Name: "Washington", State: "DC", Lat: 38.91, Lon: -77.04},
	{Name: "Richmond", State: "VA", Lat: 37.54, Lon: -77.44},
	{Name: "Philadelphia", State: "PA", Lat: 39.95, Lon: -75.17},
	{Name: "New York City", State: "NY", Lat: 40.71, Lon: -74.01},
	{Name: "Baltimore", State: "MD", Lat: 39.29, Lon: -76.61},
	{Name: "Pittsburgh", State: "PA", Lat: 40.44, Lon: -80.00},
	{Name: "Boston", State: "MA", Lat: 42.36, Lon: -71.06},
	{Name: "Hartford", State: "CT", Lat: 41.76, Lon: -72.68},
	{Name: "Portland", State: "ME", Lat: 43.66, Lon: -70.26},
	{Name: "Burlington", State: "VT", Lat: 44.48, Lon: -73.21},
	{Name: "Albany", State: "NY", Lat: 42.65, Lon: -73.76},
	{Name: "Buffalo", State: "NY", Lat: 42.89, Lon: -78.88},
	{Name: "Chicago", State: "IL", Lat: 41.88, Lon: -87.63},
	{Name: "Springfield", State: "IL", Lat: 39.78, Lon: -89.65},
	{Name: "Indianapolis", State: "IN", Lat: 39.77, Lon: -86.16},
	{Name: "Columbus", State: "OH", Lat: 39.96, Lon: -83.00},
	{Name: "Detroit", State: "MI", Lat: 42.33, Lon: -83.05},
	{Name: "Cleveland", State: "OH", Lat: 41.50, Lon: -81.69},
	{Name: "Milwaukee", State: "WI", Lat: 43.04, Lon: -87.91},
	{Name: "Minneapolis", State: "MN", Lat: 44.98, Lon: -93.27},
	{Name: "Des Moines", State: "IA", Lat: 41.59, Lon: -93.62},
	{Name: "Omaha", State: "NE", Lat: 41.26, Lon: -95.94},
	{Name: "Kansas City", State: "MO", Lat: 39.10, Lon: -94.58},
	{Name: "St. Louis", State: "MO", Lat: 38.63, Lon: -90.20},
	{Name: "Denver", State: "CO", Lat: 39.74, Lon: -104.99},
	{Name: "Albuquerque", State: "NM", Lat: 35.08, Lon: -106.65},
	{Name: "Salt Lake City", State: "UT", Lat: 40.76, Lon: -111.89},
	{Name: "Boise", State: "ID", Lat: 43.62, Lon: -116.21},
	{Name: "Cheyenne", State: "WY", Lat: 41.14, Lon: -104.82},
	{Name: "Fargo", State: "ND", Lat: 46.88, Lon: -96.79},
	{Name: "Rapid City", State: "SD", Lat: 44.08, Lon: -103.23},
	{Name: "Billings", State: "MT", Lat: 45.78, Lon: -108.50},
	{Name: "Seattle", State: "WA", Lat: 47.61, Lon: -122.33},
	{Name: "Portland", State: "OR", Lat: 45.52, Lon: -122.68},
	{Name: "San Francisco", State: "CA", Lat: 37.77, Lon: -122.42},
	{Name: "Los Angeles", State: "CA", Lat: 34.05, Lon: -118.24},
	{Name: "Phoenix", State: "AZ", Lat: 33.45, Lon: -112.07},
	{Name: "Las Vegas", State: "NV", Lat: 36.17, Lon: -115.14},
}

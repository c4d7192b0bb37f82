package seed

import (
	gormModels "zborinfo/dispecer/internal/models/gorm"
)

// Airports is the curated starting catalog: every commercial airport in
// Romania and Moldova. Everything else enters the registry through cache
// discovery. Names are the local short forms shown on the site.
func Airports() []gormModels.Airport {
	return []gormModels.Airport{
		airport("OTP", "LROP", "Aeroportul Internațional Henri Coandă București", "București Otopeni", "București", "RO", "Romania", 44.5711, 26.0850),
		airport("BBU", "LRBS", "Aeroportul Internațional București Băneasa", "București Băneasa", "București", "RO", "Romania", 44.5032, 26.1021),
		airport("CLJ", "LRCL", "Aeroportul Internațional Avram Iancu Cluj", "Cluj-Napoca", "Cluj-Napoca", "RO", "Romania", 46.7852, 23.6862),
		airport("TSR", "LRTR", "Aeroportul Internațional Traian Vuia Timișoara", "Timișoara", "Timișoara", "RO", "Romania", 45.8099, 21.3379),
		airport("IAS", "LRIA", "Aeroportul Internațional Iași", "Iași", "Iași", "RO", "Romania", 47.1785, 27.6206),
		airport("SBZ", "LRSB", "Aeroportul Internațional Sibiu", "Sibiu", "Sibiu", "RO", "Romania", 45.7856, 24.0913),
		airport("CND", "LRCK", "Aeroportul Internațional Mihail Kogălniceanu Constanța", "Constanța", "Constanța", "RO", "Romania", 44.3622, 28.4883),
		airport("CRA", "LRCV", "Aeroportul Internațional Craiova", "Craiova", "Craiova", "RO", "Romania", 44.3181, 23.8886),
		airport("SCV", "LRSV", "Aeroportul Internațional Ștefan cel Mare Suceava", "Suceava", "Suceava", "RO", "Romania", 47.6875, 26.3541),
		airport("BAY", "LRBM", "Aeroportul Internațional Maramureș", "Baia Mare", "Baia Mare", "RO", "Romania", 47.6584, 23.4700),
		airport("OMR", "LROD", "Aeroportul Internațional Oradea", "Oradea", "Oradea", "RO", "Romania", 47.0253, 21.9025),
		airport("TGM", "LRTM", "Aeroportul Internațional Transilvania Târgu Mureș", "Târgu Mureș", "Târgu Mureș", "RO", "Romania", 46.4677, 24.4125),
		airport("SUJ", "LRSM", "Aeroportul Internațional Satu Mare", "Satu Mare", "Satu Mare", "RO", "Romania", 47.7033, 22.8857),
		airport("ARW", "LRAR", "Aeroportul Internațional Arad", "Arad", "Arad", "RO", "Romania", 46.1766, 21.2620),
		airport("BCM", "LRBC", "Aeroportul Internațional George Enescu Bacău", "Bacău", "Bacău", "RO", "Romania", 46.5219, 26.9103),
		airport("TCE", "LRTC", "Aeroportul Delta Dunării Tulcea", "Tulcea", "Tulcea", "RO", "Romania", 45.0625, 28.7143),
		// Chișinău flies under both codes since the 2024 IATA reassignment;
		// upstream feeds still mix them.
		airport("KIV", "LUKK", "Aeroportul Internațional Chișinău", "Chișinău", "Chișinău", "MD", "Moldova", 46.9277, 28.9310),
		airport("RMO", "LUKK", "Aeroportul Internațional Chișinău", "Chișinău", "Chișinău", "MD", "Moldova", 46.9277, 28.9310),
	}
}

// Codes returns the seed IATA codes, used by the background refresh worker.
func Codes() []string {
	airports := Airports()
	codes := make([]string, 0, len(airports))
	for _, a := range airports {
		codes = append(codes, a.IATA)
	}
	return codes
}

func airport(iata, icao, name, shortName, city, countryCode, countryName string, lat, lon float64) gormModels.Airport {
	return gormModels.Airport{
		IATA:        iata,
		ICAO:        icao,
		Name:        name,
		ShortName:   shortName,
		City:        city,
		CountryCode: countryCode,
		CountryName: countryName,
		Timezone:    timezoneFor(countryCode),
		Latitude:    lat,
		Longitude:   lon,
		Source:      gormModels.AirportSourceSeed,
		IsActive:    true,
	}
}

func timezoneFor(countryCode string) string {
	if countryCode == "MD" {
		return "Europe/Chisinau"
	}
	return "Europe/Bucharest"
}

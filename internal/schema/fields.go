package schema

import "github.com/NunoFAntunes/realtor-buddy/internal/model"

func yesNo() []ValueTranslation {
	return []ValueTranslation{
		{Source: "da", Canonical: "yes"},
		{Source: "ne", Canonical: "no"},
	}
}

// Searchable columns come first; prompt mapping rows are dropped from the
// end when the prompt budget runs out.
func catalogFields() []Field {
	return []Field{
		{Column: "id", Canonical: "id", Type: TypeInteger, Description: "Primary key, unique property identifier"},
		{Column: "title", Canonical: "title", Type: TypeText, Description: "Listing headline"},
		{Column: "price", Canonical: "price", Type: TypeNumeric, Description: "Asking price in EUR, may be NULL", Synonyms: []string{"cijena", "cost"}},
		{
			Column: "property_type", Canonical: "property_type", Type: TypeText,
			Description: "Provider property category",
			Synonyms:    []string{"vrsta nekretnine", "type"},
			Values: []ValueTranslation{
				{Source: "apartments", Canonical: string(model.PropertyApartment)},
				{Source: "houses", Canonical: string(model.PropertyHouse)},
				{Source: "commercial_real_estate", Canonical: string(model.PropertyCommercial)},
				{Source: "commercial_land", Canonical: string(model.PropertyLand)},
				{Source: "luxury_properties", Canonical: string(model.PropertyLuxury)},
			},
			Aliases: []ValueTranslation{
				{Source: "stan", Canonical: string(model.PropertyApartment)},
				{Source: "kuća", Canonical: string(model.PropertyHouse)},
				{Source: "poslovni prostor", Canonical: string(model.PropertyCommercial)},
				{Source: "zemljište", Canonical: string(model.PropertyLand)},
			},
			Domain: []string{"apartments", "houses", "commercial_real_estate", "commercial_land", "luxury_properties"},
		},
		{Column: "lokacija", Canonical: "location", Type: TypeText, Description: "Location as 'City, Neighbourhood'; match with ILIKE '%term%'", Synonyms: []string{"grad", "mjesto", "city"}},
		{Column: "ulica", Canonical: "street", Type: TypeText, Description: "Street address", Synonyms: []string{"adresa", "address"}},
		{Column: "broj_soba", Canonical: "number_of_bedrooms", Type: TypeText, Description: "Bedroom count stored as text: '1'..'4' or '5+'", Synonyms: []string{"bedrooms", "sobe", "broj soba"}},
		{Column: "povrsina", Canonical: "surface_area", Type: TypeNumText, Description: "Surface area in m2 stored as text", Synonyms: []string{"area", "kvadratura"}},
		{
			Column: "kat", Canonical: "floor", Type: TypeText,
			Description: "Floor: 'prizemlje' (ground floor), numbers for upper floors, 'potkrovlje' (attic)",
			Synonyms:    []string{"etaza"},
			Values: []ValueTranslation{
				{Source: "prizemlje", Canonical: "ground_floor"},
				{Source: "visoko prizemlje", Canonical: "raised_ground_floor"},
				{Source: "potkrovlje", Canonical: "attic"},
				{Source: "podrum", Canonical: "basement"},
				{Source: "suteren", Canonical: "semi_basement"},
			},
		},
		{Column: "lift", Canonical: "elevator", Type: TypeYesNo, Description: "Elevator available ('da'/'ne')", Synonyms: []string{"dizalo"}, Values: yesNo(), Domain: []string{"da", "ne"}},
		{Column: "pogled_na_more", Canonical: "sea_view", Type: TypeYesNo, Description: "Sea view ('da'/'ne')", Synonyms: []string{"pogled na more"}, Values: yesNo(), Domain: []string{"da", "ne"}},
		{Column: "parking", Canonical: "parking", Type: TypeJSON, Description: "JSON array of parking options; non-empty means parking exists"},
		{Column: "balkon_lodza_terasa", Canonical: "balcony_loggia_terrace", Type: TypeText, Description: "Balcony, loggia or terrace ('Balkon', 'Lođa', 'Terasa'); 'Nema ništa navedeno' when none", Synonyms: []string{"balkon", "balcony"}},
		{Column: "energetski_razred", Canonical: "energy_rating", Type: TypeText, Description: "Energy class, A+ (best) to G", Synonyms: []string{"energetski certifikat"}, Domain: []string{"A+", "A", "B", "C", "D", "E", "F", "G"}},
		{Column: "godina_izgradnje", Canonical: "construction_year", Type: TypeNumText, Description: "Construction year stored as text", Synonyms: []string{"year built"}},
		{
			Column: "agency_type", Canonical: "agency_type", Type: TypeText,
			Description: "Seller type",
			Values: []ValueTranslation{
				{Source: "agencija", Canonical: "agency"},
				{Source: "investitor", Canonical: "investor"},
				{Source: "trgovina", Canonical: "trade"},
			},
			Domain: []string{"agencija", "investitor", "trgovina"},
		},
		{Column: "agency_name", Canonical: "agency_name", Type: TypeText, Description: "Agency name"},
		{Column: "image_urls", Canonical: "image_urls", Type: TypeJSON, Description: "JSON array of image URLs"},
		{Column: "url", Canonical: "url", Type: TypeText, Description: "Original listing URL"},
		{Column: "latitude", Canonical: "latitude", Type: TypeNumeric, Description: "GPS latitude"},
		{Column: "longitude", Canonical: "longitude", Type: TypeNumeric, Description: "GPS longitude"},
		{Column: "view_count", Canonical: "view_count", Type: TypeInteger, Description: "Times the listing was viewed"},
		{Column: "posted_date", Canonical: "posted_date", Type: TypeText, Description: "When the listing was posted"},
		{Column: "description", Canonical: "description", Type: TypeText, Description: "Free-text listing description"},
		{Column: "godina_zadnje_renovacije", Canonical: "last_renovation_year", Type: TypeNumText, Description: "Last renovation year stored as text"},
		{Column: "godina_zadnje_adaptacije", Canonical: "last_adaptation_year", Type: TypeNumText, Description: "Last adaptation year stored as text"},
		{Column: "grijanje", Canonical: "heating", Type: TypeJSON, Description: "JSON array of heating systems, e.g. 'centralno grijanje'", Synonyms: []string{"heating system"}},
		{
			Column: "namjena", Canonical: "purpose_use", Type: TypeText,
			Description: "Designated use",
			Values: []ValueTranslation{
				{Source: "stambena", Canonical: "residential"},
				{Source: "poslovna", Canonical: "commercial"},
				{Source: "mješovita", Canonical: "mixed_use"},
			},
		},
		{Column: "namjestenost_i_stanje", Canonical: "furnished_condition", Type: TypeText, Description: "Furnishing and condition, e.g. 'za renovaciju'"},
		{Column: "povrsina_okucnice", Canonical: "yard_area", Type: TypeNumText, Description: "Yard area in m2 stored as text", Synonyms: []string{"okucnica", "garden"}},
		{Column: "stambena_povrsina", Canonical: "living_area", Type: TypeNumText, Description: "Living area in m2 stored as text"},
		{Column: "netto_povrsina", Canonical: "net_area", Type: TypeNumText, Description: "Net area in m2 stored as text"},
		{Column: "povrsina_objekta", Canonical: "building_area", Type: TypeNumText, Description: "Building footprint in m2 stored as text"},
		{Column: "broj_prostorija", Canonical: "number_of_rooms", Type: TypeText, Description: "Total room count stored as text"},
		{Column: "broj_sanitarnih_cvorova", Canonical: "number_of_bathrooms", Type: TypeText, Description: "Bathroom count stored as text", Synonyms: []string{"bathrooms", "kupaonice"}},
		{Column: "broj_etaza", Canonical: "number_of_floors", Type: TypeText, Description: "Number of storeys of the unit"},
		{Column: "ukupni_broj_katova", Canonical: "total_floors", Type: TypeText, Description: "Storeys in the building"},
		{Column: "broj_parkirnih_mjesta", Canonical: "number_of_parking_spaces", Type: TypeText, Description: "Parking spaces stored as text"},
		{Column: "vrsta_parkinga", Canonical: "parking_type", Type: TypeJSON, Description: "JSON array of parking kinds"},
		{Column: "ostali_objekti_i_povrsine", Canonical: "other_objects_surfaces", Type: TypeJSON, Description: "JSON array of outbuildings and outdoor areas"},
		{Column: "komunalije", Canonical: "utilities", Type: TypeJSON, Description: "JSON array of connected utilities"},
		{Column: "tip_nekretnine", Canonical: "property_kind", Type: TypeText, Description: "Provider sub-category of the property"},
		{Column: "tip_stana", Canonical: "apartment_type", Type: TypeText, Description: "Apartment layout type"},
		{Column: "tip_kuce", Canonical: "house_type", Type: TypeText, Description: "House type (detached, semi-detached, row)"},
		{Column: "tip_zemljista", Canonical: "land_type", Type: TypeText, Description: "Land type"},
		{Column: "vrsta_kuce_gradnje", Canonical: "house_construction_type", Type: TypeText, Description: "House construction material"},
		{Column: "blizina_tramvaja", Canonical: "tram_proximity", Type: TypeText, Description: "Distance to the nearest tram stop"},
		{Column: "dostupno_od", Canonical: "available_from", Type: TypeText, Description: "Availability date"},
		{Column: "dostupnost_kroz_godinu", Canonical: "yearly_availability", Type: TypeText, Description: "Availability during the year"},
		{Column: "mogucnost_zamjene", Canonical: "exchange_possibility", Type: TypeYesNo, Description: "Exchange accepted ('da'/'ne')", Values: yesNo()},
		{Column: "razgledavanje_putem_video_poziva", Canonical: "video_call_viewing", Type: TypeYesNo, Description: "Video viewing offered ('da'/'ne')", Values: yesNo()},
		{Column: "namjena_poslovnog_prostora", Canonical: "commercial_space_purpose", Type: TypeText, Description: "Intended commercial use"},
		{Column: "pozicija_poslovnog_prostora", Canonical: "commercial_space_position", Type: TypeText, Description: "Commercial space position (street level, in a centre)"},
		{Column: "agencijska_provizija", Canonical: "agency_commission", Type: TypeText, Description: "Agency commission"},
		{Column: "agencijsku_proviziju_placa", Canonical: "commission_paid_by", Type: TypeText, Description: "Who pays the commission"},
		{Column: "rezije", Canonical: "utilities_costs", Type: TypeText, Description: "Monthly utility costs"},
		{Column: "troskovi", Canonical: "costs", Type: TypeJSON, Description: "JSON array of running costs"},
		{Column: "dozvole", Canonical: "permits", Type: TypeJSON, Description: "JSON array of permits"},
		{Column: "dozvole_i_potvrde", Canonical: "permits_and_certificates", Type: TypeJSON, Description: "JSON array of permits and certificates"},
		{Column: "funkcionalnosti_i_ostale_karakteristike", Canonical: "functionality_other_features", Type: TypeJSON, Description: "JSON array of other features"},
		{Column: "kupaonica_i_wc", Canonical: "bathroom_toilet", Type: TypeJSON, Description: "JSON array of bathroom details"},
		{Column: "orijentacija_stana", Canonical: "apartment_orientation", Type: TypeJSON, Description: "JSON array of orientations"},
		{Column: "podaci_o_objektu", Canonical: "building_data", Type: TypeJSON, Description: "JSON array of building details"},
		{Column: "tehnika", Canonical: "technical_equipment", Type: TypeJSON, Description: "JSON array of installed equipment"},
		{Column: "sifra_objekta", Canonical: "property_code", Type: TypeText, Description: "Agency reference code"},
		{Column: "ad_id", Canonical: "ad_id", Type: TypeText, Description: "Advertisement id on the source website"},
		{Column: "website", Canonical: "website", Type: TypeText, Description: "Source website"},
		{Column: "created_at", Canonical: "created_at", Type: TypeTimestamp, Description: "Row creation time"},
		{Column: "time_posted", Canonical: "time_posted", Type: TypeTimestamp, Description: "Posting timestamp"},
		{Column: "last_updated", Canonical: "last_updated", Type: TypeTimestamp, Description: "Last modification time"},
	}
}

func catalogFeatures() []Feature {
	return []Feature{
		{
			Name: model.FeatureSeaView, Field: "sea_view", Kind: FeatureYesNo,
			Synonyms: []string{"sea view", "seaview", "ocean view", "view of the sea", "sea views", "pogled na more", "pogledom na more", "morski pogled"},
		},
		{
			Name: model.FeatureElevator, Field: "elevator", Kind: FeatureYesNo,
			Synonyms: []string{"elevator", "lift", "dizalo", "dizalom", "liftom"},
		},
		{
			Name: model.FeatureParking, Field: "parking", Kind: FeatureJSONArray,
			Synonyms: []string{"parking", "garage", "garaža", "garažom", "parking space", "parkirno mjesto", "parkirnim mjestom", "garažno mjesto"},
		},
		{
			Name: model.FeatureBalcony, Field: "balcony_loggia_terrace", Kind: FeatureFilledText,
			Synonyms:  []string{"balcony", "balconies", "terrace", "loggia", "balkon", "balkonom", "terasa", "terasom", "lođa", "lođom"},
			NoneValue: "Nema ništa navedeno",
		},
	}
}

func catalogLocations() []LocationTerm {
	return []LocationTerm{
		{Display: "Zagreb", Forms: []string{"zagreb", "zagrebu", "zagreba"}},
		{Display: "Split", Forms: []string{"split", "splitu", "splita"}},
		{Display: "Rijeka", Forms: []string{"rijeka", "rijeci", "rijeke"}},
		{Display: "Osijek", Forms: []string{"osijek", "osijeku", "osijeka"}},
		{Display: "Zadar", Forms: []string{"zadar", "zadru", "zadra"}},
		{Display: "Slavonski Brod", Forms: []string{"slavonski brod", "slavonskom brodu", "slavonskog broda"}},
		{Display: "Pula", Forms: []string{"pula", "puli", "pule"}},
		{Display: "Karlovac", Forms: []string{"karlovac", "karlovcu", "karlovca"}},
		{Display: "Sisak", Forms: []string{"sisak", "sisku", "siska"}},
		{Display: "Šibenik", Forms: []string{"šibenik", "šibeniku", "šibenika"}},
		{Display: "Dubrovnik", Forms: []string{"dubrovnik", "dubrovniku", "dubrovnika"}},
		{Display: "Bjelovar", Forms: []string{"bjelovar", "bjelovaru", "bjelovara"}},
		{Display: "Varaždin", Forms: []string{"varaždin", "varaždinu", "varaždina"}},
		{Display: "Opatija", Forms: []string{"opatija", "opatiji"}},
		{Display: "Rovinj", Forms: []string{"rovinj", "rovinju"}},
		{Display: "Poreč", Forms: []string{"poreč", "poreču"}},
		{Display: "Makarska", Forms: []string{"makarska", "makarskoj"}},
		{Display: "Trogir", Forms: []string{"trogir", "trogiru"}},
		{Display: "centar", Forms: []string{"centar", "centru", "center", "centre", "city center", "city centre", "downtown", "središte"}},
		{Display: "stari grad", Forms: []string{"stari grad", "starom gradu", "old town"}},
		{Display: "novi grad", Forms: []string{"novi grad", "novom gradu", "new town"}},
		{Display: "gornji grad", Forms: []string{"gornji grad", "gornjem gradu", "upper town"}},
		{Display: "donji grad", Forms: []string{"donji grad", "donjem gradu", "lower town"}},
		{Display: "Trešnjevka", Forms: []string{"trešnjevka", "trešnjevci"}},
		{Display: "Maksimir", Forms: []string{"maksimir", "maksimiru"}},
		{Display: "Marjan", Forms: []string{"marjan", "marjanu"}},
		{Display: "Meje", Forms: []string{"meje", "mejama"}},
		{Display: "Trsat", Forms: []string{"trsat", "trsatu"}},
		{Display: "Pećine", Forms: []string{"pećine", "pećinama"}},
	}
}

func catalogPropertyTerms() map[model.PropertyType][]string {
	return map[model.PropertyType][]string{
		model.PropertyApartment: {
			"apartment", "apartments", "flat", "flats", "studio", "penthouse", "penthouses",
			"stan", "stana", "stanovi", "stanova", "stanove", "apartman", "apartmani", "garsonijera",
		},
		model.PropertyHouse: {
			"house", "houses", "villa", "villas", "cottage",
			"kuća", "kuće", "kuću", "kuca", "kuce", "vila", "vile", "obiteljska kuća",
		},
		model.PropertyCommercial: {
			"commercial", "commercial space", "commercial spaces", "office", "offices", "shop", "retail", "business premises",
			"poslovni prostor", "poslovnog prostora", "poslovni prostori", "ured", "lokal",
		},
		model.PropertyLand: {
			"land", "plot", "plots", "building land", "commercial land",
			"zemljište", "zemljišta", "parcela", "parcele", "građevinsko zemljište",
		},
		model.PropertyLuxury: {
			"luxury", "luxurious", "luksuz", "luksuzna", "luksuzne", "luksuzni",
		},
	}
}

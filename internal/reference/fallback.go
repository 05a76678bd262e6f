package reference

import "github.com/hitoshi/eduportal/internal/model"

var fallbackGrades = []model.ReferenceItem{
	{ID: "6eme", Name: "6ème"},
	{ID: "5eme", Name: "5ème"},
	{ID: "4eme", Name: "4ème"},
	{ID: "3eme", Name: "3ème"},
	{ID: "seconde", Name: "Seconde"},
	{ID: "premiere", Name: "Première"},
	{ID: "terminale", Name: "Terminale"},
}

var fallbackRegions = []model.ReferenceItem{
	{ID: "ara", Name: "Auvergne-Rhône-Alpes"},
	{ID: "bfc", Name: "Bourgogne-Franche-Comté"},
	{ID: "bre", Name: "Bretagne"},
	{ID: "cvl", Name: "Centre-Val de Loire"},
	{ID: "cor", Name: "Corse"},
	{ID: "ges", Name: "Grand Est"},
	{ID: "hdf", Name: "Hauts-de-France"},
	{ID: "idf", Name: "Île-de-France"},
	{ID: "nor", Name: "Normandie"},
	{ID: "naq", Name: "Nouvelle-Aquitaine"},
	{ID: "occ", Name: "Occitanie"},
	{ID: "pdl", Name: "Pays de la Loire"},
	{ID: "pac", Name: "Provence-Alpes-Côte d'Azur"},
}

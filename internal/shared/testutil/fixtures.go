package testutil

// ScenarioCSV is the three row dataset used across package tests.
const ScenarioCSV = "state,year,indicator,value\nA,2020,X,10\nA,2021,X,20\nB,2020,X,5"

// SchemaErrorCSV lacks the state column.
const SchemaErrorCSV = "year,indicator,value\n2020,X,10"

// BlankStateCSV parses to zero records.
const BlankStateCSV = "state,year,indicator,value\n,2020,X,10"

// Package models defines the planner entities shared by the profile and
// meal-plan stores, the aggregation engine and the exporters.
//
// Every entity kind has its own id type so that, for example, a FoodID cannot
// be passed where a MealID is expected.
package models

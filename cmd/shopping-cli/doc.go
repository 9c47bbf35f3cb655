// Package main is a command line client for the shopping list backend.
//
// Usage:
//
//	shopping-cli -url http://shopping-backend:8080                       # print the list
//	shopping-cli -url ... -action add -product milk -quantity 2
//	shopping-cli -url ... -action remove -product milk
//	shopping-cli -url ... -action populate                               # coffee, bacon, eggs
//
// Every action prints the resulting list as indented JSON.
package main

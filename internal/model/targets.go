package model

// PreferredTargets lists, per attacking category, the categories it deals the
// most damage to, best first. Informational only: nothing in the tick loop
// consults it, planners and scripts may.
var PreferredTargets = map[Category][]Category{
	Fighter:    {Helicopter, Fighter},
	Helicopter: {Tank, ARRV, Helicopter, IFV, Fighter},
	IFV:        {Helicopter, ARRV, IFV, Fighter, Tank},
	Tank:       {IFV, ARRV, Tank, Fighter, Helicopter},
}
